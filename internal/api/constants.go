package api

// ServerVersion is reported in ping responses and discovery payloads.
const ServerVersion = "1.0.0"
