// Package identity supplies the stable player identity (opaque id plus
// display name) the lobby and session layers stamp into the replicated
// store. The rest of the code only ever consumes the id/name pair.
package identity

// User is a signed-in player.
type User struct {
	ID          string `yaml:"id"`
	DisplayName string `yaml:"display_name"`
}
