// Package domain contains the core business entities and rules for policybot.
// It has no dependencies on infrastructure or external services.
package domain
