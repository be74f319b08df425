package db

import "cloud.google.com/go/firestore"

const (
	platformUsersCollection = "platformUsers"
	userCompaniesCollection = "userCompanies"
	companiesCollection     = "companies"
	usersCollection         = "users"
	teamsCollection         = "teams"
	projectsCollection      = "projects"
	countersCollection      = "counters"
	auditLogsCollection     = "auditLogs"

	projectsCounterDoc = "projects"
	teamsCounterDoc    = "teams"
	counterField       = "next"
)

func companyDoc(client *firestore.Client, companyID string) *firestore.DocumentRef {
	return client.Collection(companiesCollection).Doc(companyID)
}

func companyCollection(client *firestore.Client, companyID, name string) *firestore.CollectionRef {
	return companyDoc(client, companyID).Collection(name)
}

func counterDoc(client *firestore.Client, companyID, name string) *firestore.DocumentRef {
	return companyCollection(client, companyID, countersCollection).Doc(name)
}
