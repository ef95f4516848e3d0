// Package component defines the lifecycle interface shared by fieldcrypt's
// infrastructure pieces such as the database component.
//
//   - Component: Name/Start/Stop/Health lifecycle
//   - Describable: optional one-line summary of configuration
package component
