// Package controllers holds the services mounted on the server's /api tree.
package controllers

import (
	"fmt"

	"github.com/lacquerai/greeter/internal/server"
)

const (
	// GreetingPath is where the greeting service is mounted under /api.
	GreetingPath = "/greeting"

	// DefaultName is used when the request carries no name.
	DefaultName = "World"

	greetingTemplate = "Hello, %s!"
)

// Greeting formats the greeting for name.
func Greeting(name string) string {
	return fmt.Sprintf(greetingTemplate, name)
}

// Register mounts every controller on registry.
func Register(registry *server.Registry) error {
	return registry.Register(server.Service{
		Path:    GreetingPath,
		Param:   server.Param{Name: "name", Default: DefaultName},
		Handler: Greeting,
	})
}
