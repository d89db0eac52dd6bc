package config

const (
	defaultBridgePort             = 8090
	defaultBridgeIdentifier       = "com.slate.panel"
	defaultResponseTimeoutSeconds = 300
	defaultHeartbeatIntervalMS    = 500
	defaultHeartbeatTimeoutMS     = 500
	defaultHeartbeatTolerance     = 2

	defaultPlatformRequestTimeout = 30

	defaultSequenceOutputModule = "TIFF Sequence with Alpha"
	defaultMovieOutputModule    = "Lossless with Alpha"

	defaultNtfyRequestTimeout = 10

	defaultAPIBind = "127.0.0.1:7487"
)

// Default returns a Config populated with the repository defaults. Callers
// still need to run normalize before using path fields.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  "~/.local/share/slate",
			LogDir:   "~/.local/share/slate/logs",
			ThumbDir: "~/.local/share/slate/thumbnails",
			APIBind:  defaultAPIBind,
		},
		Bridge: Bridge{
			Port:                   defaultBridgePort,
			Identifier:             defaultBridgeIdentifier,
			ResponseTimeoutSeconds: defaultResponseTimeoutSeconds,
			HeartbeatIntervalMS:    defaultHeartbeatIntervalMS,
			HeartbeatTimeoutMS:     defaultHeartbeatTimeoutMS,
			HeartbeatTolerance:     defaultHeartbeatTolerance,
			NetworkDebug:           false,
		},
		Platform: Platform{
			RequestTimeout: defaultPlatformRequestTimeout,
		},
		Publish: Publish{
			SequenceOutputModule: defaultSequenceOutputModule,
			MovieOutputModule:    defaultMovieOutputModule,
			CheckOutputModule:    true,
			ForceOutputModule:    true,
		},
		Session: Session{
			AutomaticContextSwitch: true,
			ContextCache:           true,
		},
		Launcher: Launcher{},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
			Publish:        true,
			Render:         true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        "pretty",
			Level:         "info",
			RetentionDays: 14,
		},
	}
}
