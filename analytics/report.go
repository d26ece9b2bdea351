package analytics

import (
	"fmt"
)

// PrintBatchReport writes a per-slot summary of one analyzed batch to
// stdout.
func PrintBatchReport(tag string, results []Result) {
	fmt.Println("🧾 Roll-Up Simulation Report")
	fmt.Println("----------------------------")
	if tag != "" {
		fmt.Printf("Tag: %s\n", tag)
	}

	var succeeded, failed, skipped int
	var totalCU uint64
	for _, r := range results {
		switch r.Status {
		case StatusSucceeded:
			succeeded++
			totalCU += r.CU
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	fmt.Printf("Slots:     %d\n", len(results))
	fmt.Printf("Succeeded: %d\n", succeeded)
	fmt.Printf("Failed:    %d\n", failed)
	if skipped > 0 {
		fmt.Printf("Skipped:   %d\n", skipped)
	}
	fmt.Printf("Total CU:  %d\n\n", totalCU)

	fmt.Println("Per-Slot Results:")
	for i, r := range results {
		switch r.Status {
		case StatusSucceeded:
			if r.PriorityFee > 0 {
				fmt.Printf("  %3d ✓ %d CU (priority fee %d lamports)\n", i, r.CU, r.PriorityFee)
			} else {
				fmt.Printf("  %3d ✓ %d CU\n", i, r.CU)
			}
		case StatusFailed:
			fmt.Printf("  %3d ✗ [%s] %s\n", i, r.Kind, r.Message)
		case StatusSkipped:
			fmt.Printf("  %3d - %s\n", i, r.Reason)
		}
	}
}

// PrintArchive writes the stored batches of one tag to stdout.
func PrintArchive(batches []TaggedBatch) {
	fmt.Println("🗂  Archived Batches")
	fmt.Println("-------------------")
	for _, b := range batches {
		fmt.Printf("%s  %s  %d slots  (%s)\n", b.ID, b.Tag, b.Count, b.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}
