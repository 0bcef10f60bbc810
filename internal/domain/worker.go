package domain

// SubjectType distinguishes authenticated principals.
type SubjectType string

const (
	SubjectTypeAdmin  SubjectType = "ADMIN"
	SubjectTypeWorker SubjectType = "WORKER"
)

// Worker is a dispatchable field worker. Workers are identified by name;
// Credential is either a legacy plaintext secret or a pbkdf2 record.
type Worker struct {
	Name       string
	Credential string
	Team       string
}
