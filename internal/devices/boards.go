package devices

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/KevinKickass/OpenGroveCore/internal/types"
	"gopkg.in/yaml.v3"
)

// LoadBoardFiles reads every *.yaml and *.yml board file in the given
// directories. Missing directories are skipped. Files are returned in
// path order so attach order is stable across restarts.
func LoadBoardFiles(searchPaths []string) ([]types.BoardAssignment, error) {
	var files []string
	for _, dir := range searchPaths {
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
			}
			files = append(files, matches...)
		}
	}
	sort.Strings(files)

	boards := make([]types.BoardAssignment, 0, len(files))
	for _, file := range files {
		board, err := LoadBoardFile(file)
		if err != nil {
			return nil, err
		}
		boards = append(boards, *board)
	}
	return boards, nil
}

func LoadBoardFile(file string) (*types.BoardAssignment, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read board file: %w", err)
	}

	var board types.BoardAssignment
	if err := yaml.Unmarshal(data, &board); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", file, err)
	}
	if board.Name == "" {
		board.Name = filepath.Base(file[:len(file)-len(filepath.Ext(file))])
	}
	if board.IOP == "" || board.Variant == "" {
		return nil, fmt.Errorf("%s: iop and variant are required", file)
	}
	return &board, nil
}
