package website

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsSystemMessage(t *testing.T) {
	system := []string{
		"",
		"Automation System resolved this conversation",
		"Assigned to Priya by Automation System",
		"Unassigned from Priya by admin",
		"Priya changed the priority to high",
		"Priya removed the priority",
		"Priya added urgent label",
		"Priya removed urgent label",
		"added booking label",
		"removed service tag",
	}
	for _, content := range system {
		require.True(t, isSystemMessage(content), "expected system: %q", content)
	}

	user := []string{
		"Hello, I want to book a test ride",
		"What is the price of the T30?",
		"My booking reference is TR-12345",
	}
	for _, content := range user {
		require.False(t, isSystemMessage(content), "expected user message: %q", content)
	}
}
