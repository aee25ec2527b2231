package config

import (
	"time"

	"hotsoonripper/internal/consts"
)

// Default returns the built-in configuration without reading the environment.
func Default() *Config {
	return &Config{
		App: App{LogLevel: "info", LogFormat: "auto"},
		Job: Job{Workers: consts.DefaultWorkers},
		Fetch: Fetch{
			Retries:   consts.DefaultRetries,
			Timeout:   consts.DefaultFetchTimeout,
			ChunkSize: consts.DefaultChunkSize,
		},
		Dir: Dir{Downloads: "./download", TargetsFile: "./user-number.txt"},
		API: API{
			SearchURL:   "https://hotsoon.snssdk.com/hotsoon/search/",
			ListURL:     "https://reflow.huoshan.com/share/load_videos/",
			PlaybackURL: "https://api.huoshan.com/hotsoon/item/video/_playback/",
			Timeout:     30 * time.Second,
			MaxPages:    consts.DefaultMaxPages,
		},
		Proxy: Proxy{MaxFailures: 3, FailureBackoff: 30 * time.Second},
		HTTP:  HTTP{ShutdownTimeout: 5 * time.Second},
	}
}
