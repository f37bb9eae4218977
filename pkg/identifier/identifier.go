// Package identifier generates the short string identifiers used for forms,
// questions, responses and filling sessions.
package identifier

import "github.com/ThreeDotsLabs/watermill"

// New returns a short, printable identifier that is practically unique within
// a deployment. Collisions are accepted as a theoretical risk; nothing checks
// for them.
func New() string {
	return watermill.NewShortUUID()
}
