// Package domain defines the records and contracts shared by the stores, the
// relay client and the services behind the CLI. It contains plain types and
// interfaces only.
package domain
