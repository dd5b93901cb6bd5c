// Package model defines the SubFlow domain entities as held client-side.
// All entities are server-owned; the client caches copies decoded from the
// REST API, with Mongo-style _id resolved into plain ID strings.
package model

import "encoding/json"

// User is the authenticated account.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	CompanyName string `json:"companyName"`
	Role        string `json:"role"`
}

// UnmarshalJSON resolves _id aliasing.
func (u *User) UnmarshalJSON(b []byte) error {
	type alias User
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*u = User(a)
	if u.ID == "" {
		u.ID = documentID(b)
	}
	return nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == "admin"
}

// Workspace scopes every other resource. Exactly one workspace is selected
// client-side at a time.
type Workspace struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	MonthlyCap Money     `json:"monthlyCap"`
	CreatedAt  Timestamp `json:"createdAt"`
}

// UnmarshalJSON resolves _id aliasing.
func (w *Workspace) UnmarshalJSON(b []byte) error {
	type alias Workspace
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*w = Workspace(a)
	if w.ID == "" {
		w.ID = documentID(b)
	}
	return nil
}

// Client is a customer a subscription can be billed against.
type Client struct {
	ID          string `json:"id"`
	WorkspaceID Ref    `json:"workspaceId"`
	Name        string `json:"name"`
	Contact     string `json:"contact"`
	Notes       string `json:"notes"`
}

// UnmarshalJSON resolves _id aliasing.
func (c *Client) UnmarshalJSON(b []byte) error {
	type alias Client
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*c = Client(a)
	if c.ID == "" {
		c.ID = documentID(b)
	}
	return nil
}

// Budget is the per-workspace monthly cap. The server creates one alongside
// each workspace; only monthlyCap and alertThreshold are editable.
type Budget struct {
	ID             string `json:"id"`
	WorkspaceID    Ref    `json:"workspaceId"`
	MonthlyCap     Money  `json:"monthlyCap"`
	AlertThreshold Money  `json:"alertThreshold"`
}

// UnmarshalJSON resolves _id aliasing.
func (b *Budget) UnmarshalJSON(data []byte) error {
	type alias Budget
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*b = Budget(a)
	if b.ID == "" {
		b.ID = documentID(data)
	}
	return nil
}

// Plan is a SubFlow pricing tier from the plan catalog.
type Plan struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    Money    `json:"price"`
	Interval string   `json:"interval"`
	Features []string `json:"features"`
}

// UnmarshalJSON resolves _id aliasing.
func (p *Plan) UnmarshalJSON(b []byte) error {
	type alias Plan
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*p = Plan(a)
	if p.ID == "" {
		p.ID = documentID(b)
	}
	return nil
}

// UserPlan is the account's active plan assignment.
type UserPlan struct {
	ID     string `json:"id"`
	PlanID Ref    `json:"planId"`
	Status string `json:"status"`
}

// UnmarshalJSON resolves _id aliasing.
func (p *UserPlan) UnmarshalJSON(b []byte) error {
	type alias UserPlan
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*p = UserPlan(a)
	if p.ID == "" {
		p.ID = documentID(b)
	}
	return nil
}
