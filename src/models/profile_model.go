package models

import "time"

type Work struct {
	Company  string `json:"company" bson:"company"`
	Position string `json:"position" bson:"position"`
	Years    string `json:"years" bson:"years"`
}

type Education struct {
	School       string `json:"school" bson:"school"`
	Degree       string `json:"degree" bson:"degree"`
	FieldOfStudy string `json:"fieldOfStudy" bson:"fieldOfStudy"`
}

// Profile holds the resume attributes of exactly one user
type Profile struct {
	ID              string      `json:"_id" bson:"_id" gorm:"primaryKey;size:24"`
	UserID          string      `json:"userId" bson:"userId" gorm:"uniqueIndex;size:24;not null"`
	Bio             string      `json:"bio" bson:"bio"`
	CurrentPosition string      `json:"currentPosition" bson:"currentPosition"`
	PastWork        []Work      `json:"pastWork" bson:"pastWork" gorm:"serializer:json"`
	Education       []Education `json:"education" bson:"education" gorm:"serializer:json"`
	CreatedAt       time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// Normalize replaces nil lists with empty ones so they encode as []
func (p *Profile) Normalize() {
	if p.PastWork == nil {
		p.PastWork = []Work{}
	}
	if p.Education == nil {
		p.Education = []Education{}
	}
}

// ProfileView is a profile joined with the public fields of its owner
type ProfileView struct {
	ID              string      `json:"_id" bson:"_id"`
	User            PublicUser  `json:"userId" bson:"userId"`
	Bio             string      `json:"bio" bson:"bio"`
	CurrentPosition string      `json:"currentPosition" bson:"currentPosition"`
	PastWork        []Work      `json:"pastWork" bson:"pastWork"`
	Education       []Education `json:"education" bson:"education"`
}

func NewProfileView(p *Profile, owner PublicUser) ProfileView {
	view := ProfileView{
		ID:              p.ID,
		User:            owner,
		Bio:             p.Bio,
		CurrentPosition: p.CurrentPosition,
		PastWork:        p.PastWork,
		Education:       p.Education,
	}
	view.Normalize()
	return view
}

func (v *ProfileView) Normalize() {
	if v.PastWork == nil {
		v.PastWork = []Work{}
	}
	if v.Education == nil {
		v.Education = []Education{}
	}
}
