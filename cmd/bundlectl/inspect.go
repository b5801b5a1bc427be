package main

import (
	"fmt"

	"github.com/fileslot/bundlestore"
)

func inspectBundle(storageRoot, prefix string, bid uint32) error {
	info, err := bundlestore.Inspect(storageRoot, prefix, bid)
	if err != nil {
		return err
	}

	fmt.Printf("Path:    %s\n", info.Path)
	fmt.Printf("Size:    %d bytes\n", info.SizeBytes)
	fmt.Printf("Header:  %q\n", info.HeaderText)
	fmt.Printf("Records: %d\n", info.RecordCount)

	return nil
}
