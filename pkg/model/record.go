package model

// Record schemas for the external record store. The store is a read-only
// collaborator of the inference core; these types replace the loosely
// typed documents it holds with explicit fields per source kind.

// Profile is a saved recipient contact
type Profile struct {
	Name       string `firestore:"name" json:"name"`
	Email      string `firestore:"email" json:"email"`
	Title      string `firestore:"title" json:"title"`
	Profession string `firestore:"profession" json:"profession"`
}

// Template is a reusable email template
type Template struct {
	Name string `firestore:"name" json:"name"`
	Body string `firestore:"body" json:"body"`
}

// SentEmail is one delivered email record. SentDate is stored as an ISO
// 8601 string; invalid or missing dates are tolerated by consumers.
type SentEmail struct {
	ID         string   `firestore:"-" json:"id"`
	Recipients []string `firestore:"recipients" json:"recipients"`
	Subject    string   `firestore:"subject" json:"subject"`
	Body       string   `firestore:"body" json:"body"`
	SentDate   string   `firestore:"sent_date" json:"sent_date"`
}

// UserProfile is the app owner's own profile and signature
type UserProfile struct {
	Name       string `firestore:"name" json:"name"`
	Title      string `firestore:"title" json:"title"`
	Profession string `firestore:"profession" json:"profession"`
	Signature  string `firestore:"signature" json:"signature"`
}
