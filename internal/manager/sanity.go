package manager

import (
	"os"
	"os/exec"
	"path/filepath"
)

// SanityReport describes runtime checks for directories and external binaries.
type SanityReport struct {
	OutputDirWritable bool     `json:"output_dir_writable"`
	TempDirWritable   bool     `json:"temp_dir_writable"`
	FFmpegFound       bool     `json:"ffmpeg_found"`
	FFmpegPath        string   `json:"ffmpeg_path,omitempty"`
	Errors            []string `json:"errors,omitempty"`
}

// OK is false when a directory the pipeline writes to is unusable. A missing
// ffmpeg only disables music integration.
func (r SanityReport) OK() bool { return r.OutputDirWritable && r.TempDirWritable }

// SanityCheck validates the directories and the muxer binary. It does not
// mutate state and is safe to call at any time.
func SanityCheck(outputDir, tempDir, ffmpeg string) SanityReport {
	var r SanityReport
	if err := probeWritable(outputDir); err != nil {
		r.Errors = append(r.Errors, "output dir: "+err.Error())
	} else {
		r.OutputDirWritable = true
	}
	if err := probeWritable(tempDir); err != nil {
		r.Errors = append(r.Errors, "temp dir: "+err.Error())
	} else {
		r.TempDirWritable = true
	}
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if p, err := exec.LookPath(ffmpeg); err == nil {
		r.FFmpegFound = true
		r.FFmpegPath = p
	} else {
		r.FFmpegPath = ffmpeg
		r.Errors = append(r.Errors, "ffmpeg: "+err.Error())
	}
	return r
}

func probeWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".sanity-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(filepath.Clean(name))
}
