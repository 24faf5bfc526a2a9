package smlship_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/bft-labs/smlship"
)

func ExampleDecodeReader() {
	dump := "72 62 1 65 0 15 43 C1 74 77 7 1\r\n" +
		"65 0 10 1 4 1 62 1E 52 3 62 38 1 77 7 1\r\n" +
		"D2 2\r\n" +
		"\n\nEOT"

	sink := &smlship.SliceSink{}
	summary, err := smlship.DecodeReader(context.Background(), strings.NewReader(dump), sink)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	for _, r := range sink.Readings {
		fmt.Println(r.Timestamp.Format("2006-01-02T15:04:05"), r.EnergyWh, r.BatteryV)
	}
	fmt.Println(summary.Emitted, "of", summary.Frames, "frames")
	// Output:
	// 2021-04-04T14:16:41 56000 4.653515625
	// 1 of 3 frames
}
