package core

import (
	"strings"

	"github.com/google/uuid"
)

// SubjectNamespaceV1 is the UUIDv5 namespace subjects are derived under.
// Changing it changes every subject ever issued.
var SubjectNamespaceV1 = uuid.MustParse("ee5965fa-0d55-48be-9870-6f8d4df17426")

// DeriveSubject returns the stable pseudonymous identifier for an address.
// The address is lower-cased first so checksum casing does not matter.
func DeriveSubject(address string) string {
	return DeriveSubjectIn(SubjectNamespaceV1, address)
}

// DeriveSubjectIn derives a subject under an explicit namespace
func DeriveSubjectIn(namespace uuid.UUID, address string) string {
	return uuid.NewSHA1(namespace, []byte(strings.ToLower(address))).String()
}
