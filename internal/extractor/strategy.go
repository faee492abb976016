package extractor

// Strategy is one way of invoking yt-dlp
type Strategy struct {
	Name string
	Args []string
}

// Ladder is an ordered list of strategies; earlier entries are cheaper and
// more likely to return accurate data.
type Ladder []Strategy

// Names returns the strategy names in order
func (l Ladder) Names() []string {
	names := make([]string, len(l))
	for i, s := range l {
		names[i] = s.Name
	}
	return names
}

// metadataArgs are shared by every metadata strategy
var metadataArgs = []string{"-J", "--no-playlist", "--no-warnings"}

func playerClient(name string) []string {
	return []string{"--extractor-args", "youtube:player_client=" + name}
}

var noCheckFormats = []string{"--no-check-formats"}

// MetadataLadder returns the fallback ladder for fetching format metadata:
// the default client, then alternate client emulations, then skipping
// format availability checks.
func MetadataLadder() Ladder {
	return Ladder{
		{Name: "default", Args: join(metadataArgs)},
		{Name: "android", Args: join(metadataArgs, playerClient("android"))},
		{Name: "ios", Args: join(metadataArgs, playerClient("ios"))},
		{Name: "tv_embedded", Args: join(metadataArgs, playerClient("tv_embedded"))},
		{Name: "no_check_formats", Args: join(metadataArgs, noCheckFormats)},
	}
}

// DownloadLadder returns the fallback ladder for a download whose
// format/output arguments are planArgs.
func DownloadLadder(planArgs []string) Ladder {
	return Ladder{
		{Name: "default", Args: join(planArgs)},
		{Name: "android", Args: join(planArgs, playerClient("android"))},
		{Name: "ios", Args: join(planArgs, playerClient("ios"))},
		{Name: "no_check_formats", Args: join(planArgs, noCheckFormats)},
	}
}

// PrefixArgs returns the arguments placed before every strategy: the cookie
// file and, when not the default, the ffmpeg location.
func PrefixArgs(cookiesFile, ffmpegPath string) []string {
	var args []string
	if cookiesFile != "" {
		args = append(args, "--cookies", cookiesFile)
	}
	if ffmpegPath != "" && ffmpegPath != "ffmpeg" {
		args = append(args, "--ffmpeg-location", ffmpegPath)
	}
	return args
}

// join concatenates argument lists into a fresh slice
func join(parts ...[]string) []string {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]string, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
