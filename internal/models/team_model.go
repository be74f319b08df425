package models

import "time"

// Team groups company users. Teams created by this service get the id "#N".
type Team struct {
	ID        string    `json:"id" firestore:"-"`
	Name      string    `json:"name" firestore:"name"`
	Active    bool      `json:"active" firestore:"active"`
	Number    int64     `json:"number" firestore:"number"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	CreatedBy string    `json:"createdBy" firestore:"createdBy"`
}
