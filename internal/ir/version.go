package ir

// EngineVersion is the bridge core version.
const EngineVersion = "0.1.0"
