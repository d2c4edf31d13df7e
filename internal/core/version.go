package core

// Version is reported by the health-check endpoint.
const Version = "0.1.0"
