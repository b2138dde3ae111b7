package config

// Build-time variables injected via ldflags:
//
//	-X github.com/turtacn/MolFrag/internal/config.Version=v1.0.0
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

//Personal.AI order the ending
