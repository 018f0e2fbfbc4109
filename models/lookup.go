package models

// Position is a job title users may reference.
type Position struct {
	ID   int64  `json:"id" bson:"_id"`
	Name string `json:"name" bson:"name"`
}

type Status struct {
	ID   int64  `json:"id" bson:"_id"`
	Name string `json:"name" bson:"name"`
}

type Priority struct {
	ID    int64  `json:"id" bson:"_id"`
	Level string `json:"level" bson:"level"`
}

func (p Position) String() string { return p.Name }
func (s Status) String() string   { return s.Name }
func (p Priority) String() string { return p.Level }
