package grambudget

import (
	_ "embed"
)

// SystemPrompt is the fixed instruction sent ahead of every conversation. It sets the assistant's
// persona and the topics it is allowed to answer. Clients have no way to override it; only the
// server configuration can replace it at startup.
//
//go:embed prompts/system.txt
var SystemPrompt string
