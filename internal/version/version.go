// ABOUTME: Version information for pulse-play
// ABOUTME: Product name, manufacturer and release version
package version

const (
	// Version is the release version
	Version = "0.1.0"

	// Product is the program name
	Product = "pulse-play"

	// Manufacturer is the project name
	Manufacturer = "Sendspin"
)

// String returns "product version"
func String() string {
	return Product + " " + Version
}
