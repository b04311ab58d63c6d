/*
Copyright © 2025 Jayson Grace <jayson.e.grace@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cross-rs/xtask/logging"
	"gopkg.in/ini.v1"
)

// AuthorReader reads the git author used for the image authors label. The
// repository config takes precedence over the global one.
type AuthorReader struct {
	// Home is the directory holding .gitconfig. Defaults to the user's
	// home directory.
	Home string
}

// Author returns "Name <email>", "Name", "email" or "" for the workspace at root.
func (r AuthorReader) Author(ctx context.Context, root string) string {
	var name, email string

	sources := []string{filepath.Join(root, ".git", "config")}
	if home := r.home(ctx); home != "" {
		sources = append(sources, filepath.Join(home, ".gitconfig"))
	}

	for _, path := range sources {
		cfg := loadGitConfig(ctx, path)
		if cfg == nil {
			continue
		}
		name, email = fillUserInfo(cfg, name, email)
		if name == "" || email == "" {
			name, email = r.fillFromInclude(ctx, cfg, name, email)
		}
		if name != "" && email != "" {
			break
		}
	}

	return formatAuthor(name, email)
}

func (r AuthorReader) home(ctx context.Context) string {
	if r.Home != "" {
		return r.Home
	}
	home, err := os.UserHomeDir()
	if err != nil {
		logging.DebugContext(ctx, "Failed to get home directory: %v", err)
		return ""
	}
	return home
}

func loadGitConfig(ctx context.Context, path string) *ini.File {
	cfg, err := ini.Load(path)
	if err != nil {
		logging.DebugContext(ctx, "Failed to load git config %s: %v", path, err)
		return nil
	}
	return cfg
}

// fillUserInfo sets name and email from the [user] section when still empty.
func fillUserInfo(cfg *ini.File, name, email string) (string, string) {
	user := cfg.Section("user")
	if name == "" {
		name = user.Key("name").String()
	}
	if email == "" {
		email = user.Key("email").String()
	}
	return name, email
}

// fillFromInclude follows a single [include] path.
func (r AuthorReader) fillFromInclude(ctx context.Context, cfg *ini.File, name, email string) (string, string) {
	path := cfg.Section("include").Key("path").String()
	if path == "" {
		return name, email
	}

	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		path = filepath.Join(r.home(ctx), rest)
	}
	path = os.ExpandEnv(path)

	included := loadGitConfig(ctx, path)
	if included == nil {
		return name, email
	}
	return fillUserInfo(included, name, email)
}

func formatAuthor(name, email string) string {
	switch {
	case name != "" && email != "":
		return fmt.Sprintf("%s <%s>", name, email)
	case name != "":
		return name
	default:
		return email
	}
}
