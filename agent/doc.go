// Package agent defines the uniform inference capability interface every
// backend family implements, plus the canonical OpenAI chat-completion
// wire types every variant translates to and from. It is a narrow
// interface with a fixed method set and no separate translator
// collaborator — translation is embedded in each variant under
// agent/providers.
package agent
