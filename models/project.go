package models

import (
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

type Project struct {
	ID          int64     `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Code        string    `json:"code" bson:"code"`
	Description string    `json:"description" bson:"description"`
	MemberIDs   []int64   `json:"members" bson:"members"`
	CreatedAt   time.Time `json:"created_at" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updatedAt"`
}

// NormalizeCode upper-cases the project code. Every write path calls it so
// the stored code is always upper-case.
func (p *Project) NormalizeCode() {
	p.Code = strings.ToUpper(p.Code)
}

// HasMember reports whether userID is in the member set.
func (p *Project) HasMember(userID int64) bool {
	return slices.Contains(p.MemberIDs, userID)
}

func (p *Project) String() string {
	return p.Name
}
