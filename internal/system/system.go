package system

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// VideoExtensions are the inputs FindLatestVideo considers.
var VideoExtensions = []string{".mp4", ".webm", ".mov", ".mkv", ".avi", ".m4v"}

func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось получить лимит файлов: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
	}
}

// FindLatest returns the most recently modified file in dir whose extension is
// one of exts (case-insensitive).
func FindLatest(dir string, exts []string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !hasExtension(f.Name(), exts) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no %s files in %s", strings.Join(exts, "/"), dir)
	}

	return latestFile, nil
}

func FindLatestVideo(dir string) (string, error) {
	return FindLatest(dir, VideoExtensions)
}

func hasExtension(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// GetBestWebMEncoder picks the first webm-capable encoder ffmpeg reports.
// The capture stream is always webm, so only VP9/VP8 are considered.
func GetBestWebMEncoder() string {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libvpx-vp9"
	}
	return pickEncoder(string(out), []string{"libvpx-vp9", "libvpx"}, "libvpx-vp9")
}

// GetBestH264Encoder prefers hardware encoders for offline renders to mp4.
func GetBestH264Encoder() string {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	return pickEncoder(string(out), []string{"h264_videotoolbox", "h264_nvenc"}, "libx264")
}

func pickEncoder(encoderList string, candidates []string, fallback string) string {
	for _, line := range strings.Split(encoderList, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		for _, c := range candidates {
			if fields[1] == c {
				return c
			}
		}
	}
	return fallback
}
