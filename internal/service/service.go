// Package service contains the business logic.
//
// It sits between the handler and repository layers: handlers pass in
// validated values, services call the repositories and translate domain
// outcomes (like a missing account) into client-facing errors.
package service
