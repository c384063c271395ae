// Copyright 2025 orbitfm
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// 📦 Package conflict detects destination collisions before a copy or
// move starts and resolves each one into a concrete plan decision.
// Detection is a pre-flight step: workers never prompt mid-transfer.
package conflict

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Resolution is the decision for one colliding destination
type Resolution int

const (
	// ResolutionSkip leaves the existing destination untouched
	ResolutionSkip Resolution = iota
	// ResolutionReplace overwrites the existing destination
	ResolutionReplace
	// ResolutionKeepBoth writes the source under a unique sibling name
	ResolutionKeepBoth
	// ResolutionReplaceIfNewer overwrites only when the source is more
	// recently modified than the destination
	ResolutionReplaceIfNewer
	// ResolutionReplaceIfLarger overwrites only when the source is larger
	ResolutionReplaceIfLarger
	// ResolutionCancel abandons the whole operation
	ResolutionCancel
)

func (r Resolution) String() string {
	switch r {
	case ResolutionSkip:
		return "skip"
	case ResolutionReplace:
		return "replace"
	case ResolutionKeepBoth:
		return "keep-both"
	case ResolutionReplaceIfNewer:
		return "replace-if-newer"
	case ResolutionReplaceIfLarger:
		return "replace-if-larger"
	case ResolutionCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// ParseResolution maps a config string to a Resolution
func ParseResolution(s string) (Resolution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "skip":
		return ResolutionSkip, nil
	case "replace", "overwrite":
		return ResolutionReplace, nil
	case "keep-both", "keep_both", "rename":
		return ResolutionKeepBoth, nil
	case "replace-if-newer", "replace_if_newer":
		return ResolutionReplaceIfNewer, nil
	case "replace-if-larger", "replace_if_larger":
		return ResolutionReplaceIfLarger, nil
	case "cancel":
		return ResolutionCancel, nil
	default:
		return ResolutionSkip, errors.Errorf("unknown conflict resolution %q", s)
	}
}

// Conflict is one source whose destination already exists
type Conflict struct {
	Source      string
	Destination string
}

// Detect returns the sources whose name already exists under the
// destination directory
func Detect(sources []string, destination string) []Conflict {
	var conflicts []Conflict
	for _, src := range sources {
		dst := filepath.Join(destination, filepath.Base(src))
		if _, err := os.Lstat(dst); err == nil {
			conflicts = append(conflicts, Conflict{Source: src, Destination: dst})
		}
	}
	return conflicts
}

// UniquePath returns the first "name (N).ext" sibling of path that does
// not exist yet. Directories get "name (N)".
func UniquePath(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := ""

	if info, err := os.Lstat(path); err != nil || !info.IsDir() {
		ext = filepath.Ext(base)
		base = strings.TrimSuffix(base, ext)
	}

	for n := 1; ; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", base, n, ext))
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// Decider answers one conflict. The second return value requests that
// the same answer apply to every remaining conflict in the batch.
type Decider func(c Conflict) (Resolution, bool)

// StaticDecider always answers the same resolution, never prompting
func StaticDecider(res Resolution) Decider {
	return func(Conflict) (Resolution, bool) {
		return res, true
	}
}

// 🔧 Resolver walks a batch of conflicts through a Decider, honoring the
// apply-to-all request so the user is asked at most once when they opt in
type Resolver struct {
	decide Decider
	sticky *Resolution
}

// NewResolver creates a resolver around a decision source
func NewResolver(decide Decider) *Resolver {
	return &Resolver{decide: decide}
}

// Resolve answers one conflict, consulting the Decider unless a previous
// apply-to-all decision is in force. Conditional resolutions are
// evaluated against the filesystem into skip or replace.
func (r *Resolver) Resolve(c Conflict) Resolution {
	var res Resolution
	if r.sticky != nil {
		res = *r.sticky
	} else {
		var all bool
		res, all = r.decide(c)
		if all {
			r.sticky = &res
		}
	}
	return evaluate(res, c)
}

// evaluate collapses the conditional resolutions by comparing source and
// destination on disk. An unreadable side resolves to skip.
func evaluate(res Resolution, c Conflict) Resolution {
	switch res {
	case ResolutionReplaceIfNewer:
		src, err1 := os.Stat(c.Source)
		dst, err2 := os.Stat(c.Destination)
		if err1 != nil || err2 != nil {
			return ResolutionSkip
		}
		if src.ModTime().After(dst.ModTime()) {
			return ResolutionReplace
		}
		return ResolutionSkip
	case ResolutionReplaceIfLarger:
		src, err1 := os.Stat(c.Source)
		dst, err2 := os.Stat(c.Destination)
		if err1 != nil || err2 != nil {
			return ResolutionSkip
		}
		if src.Size() > dst.Size() {
			return ResolutionReplace
		}
		return ResolutionSkip
	default:
		return res
	}
}
