package main

import "errors"

// Sentinel errors for command operations
var (
	ErrQueryRequiresTable = errors.New("--query requires --table to name the expected dataset table")
	ErrTableNotInDataset  = errors.New("table not present in the loaded dataset")
)
