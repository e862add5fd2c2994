package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/agusx1211/structphoto/internal/photoflat"
)

// confirmDelete describes the run and asks the user to confirm that the
// target may be wiped. Only "y" or "Y" confirms.
func confirmDelete(in io.Reader, out io.Writer, cfg photoflat.Config) (bool, error) {
	fmt.Fprintf(out, "Source directory is: %s\n", cfg.SourceDir)
	fmt.Fprintf(out, "Target directory is: %s\n", cfg.TargetDir)
	fmt.Fprintf(out, "Excluded directories are: %s\n", strings.Join(cfg.ExcludeDirs, ", "))
	fmt.Fprintf(out, "Everything will be deleted in folder %s. THIS CANNOT BE UNDONE!!!\n", cfg.TargetDir)
	fmt.Fprint(out, "Are you REALLY sure? (Y/N) [N]: ")

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return strings.EqualFold(strings.TrimSpace(answer), "y"), nil
}
