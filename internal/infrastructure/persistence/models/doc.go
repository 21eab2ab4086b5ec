// Package models holds the GORM rows behind the invoicing tables. Domain
// types stay free of ORM tags; each model converts to and from its domain
// counterpart with ToDomain and FromDomain.
//
// The postgres schema is owned by the SQL files in /migrations. AutoMigrate
// on these models only serves sqlite databases, so column changes must be
// made in both places.
package models
