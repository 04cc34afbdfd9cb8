// Package optionsapi exposes a selectsingle controller over net/http.
//
// GET and HEAD return the controller's current view as JSON: the display
// options under "data", the display value under "value", plus loading,
// disabled and warning flags. An optional search parameter filters options
// by label and a limit parameter caps the list. POST accepts
// {"value": <id>} to select an option or {"value": null} to clear.
package optionsapi
