// Package domain contains the core study entities (subjects and questions)
// and their validation rules. It has no dependencies on storage or transport.
package domain
