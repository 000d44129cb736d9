package core

// AgentType is an alias of BackendType: the same type and values, named
// for the behavioral handle rather than the runtime record.
type AgentType = BackendType

// AgentCapabilities are static capability flags describing what an Agent
// variant supports, independent of any particular model.
type AgentCapabilities struct {
	Embeddings         bool
	ModelLifecycle     bool
	TokenCounting      bool
	ResourceMonitoring bool
}

// AgentProfile is an Agent's static self-description. Profile() is pure:
// it never performs I/O and always returns the same value for a given
// constructed Agent.
type AgentProfile struct {
	AgentType    AgentType
	PrivacyZone  PrivacyZone
	Capabilities AgentCapabilities
}
