package config

import "runtime"

// Default returns the configuration used for keys missing from the file
func Default() Config {
	return Config{
		Core: Core{
			Workers:    max(2, min(runtime.NumCPU(), 8)),
			ShowHidden: false,
			Ignore: []string{
				// In macOS, .DS_Store is a file that stores custom attributes of its
				// containing folder, such as folder view options and icon positions
				".DS_Store",
			},
		},
		Preview: Preview{
			CacheSize:       "64MB",
			MaxTextSize:     "1MB",
			MaxLines:        500,
			DirLimit:        200,
			Prefetch:        2,
			Delay:           "50ms",
			SyntaxHighlight: true,
			Colorscheme:     "nord",
			Image: Image{
				Enabled:   true,
				Dithering: false,
			},
			External: External{
				Command: "file -b --",
				Timeout: "3s",
			},
		},
		Open: Open{
			Rules: []OpenRule{
				{Mime: "text/*", Command: "${EDITOR:-vi}", Terminal: true},
				{Mime: "*", Command: defaultOpener()},
			},
		},
		UI: UI{
			DateFormat: "2006-01-02 15:04",
			Style: Style{
				Cursor:    "#AD58B4", // Purple
				Marked:    "#5FB458", // Green
				Directory: "#5F87FF",
				Symlink:   "#5FD7D7",
				Border:    "#3C3C3C",
				Error:     "#FF007F",
			},
		},
		Logging: Logging{
			Enabled: false,
			Level:   "info",
			Rotation: Rotation{
				MaxSize:  "10MB",
				MaxFiles: 3,
			},
		},
	}
}

func defaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "windows":
		return "start"
	}
	return "xdg-open"
}
