package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/bitfsorg/tokendrop/distribution"
	"github.com/bitfsorg/tokendrop/holder"
	"github.com/bitfsorg/tokendrop/ledger"
	"github.com/bitfsorg/tokendrop/network"
)

// printPlan writes the holder summary and payout table.
func printPlan(w io.Writer, info *network.TokenInfo, snap *holder.Snapshot, plan *distribution.Plan) {
	name := info.TokenID
	if info.Ticker != "" {
		name = fmt.Sprintf("%s (%s)", info.Ticker, info.TokenID)
	}
	fmt.Fprintf(w, "Token %s, %d decimals\n", name, info.Decimals)
	if snap != nil {
		fmt.Fprintf(w, "Holders: %d, supply held: %s\n",
			len(snap.Holders), holder.FormatBalance(snap.Total, snap.Decimals))
		if snap.MintBatons > 0 {
			fmt.Fprintf(w, "Mint batons excluded: %d\n", snap.MintBatons)
		}
		if snap.Partial() {
			fmt.Fprintf(w, "Warning: %d outputs could not be attributed and were skipped\n", len(snap.Skipped))
		}
	}

	fmt.Fprintf(w, "Mode: %s, total: %s, eligible: %d\n\n",
		plan.Policy.Mode, plan.Policy.Total, plan.HolderCount)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "IDENTITY\tBALANCE\tPAYOUT\t")
	for _, e := range plan.Entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n",
			e.Holder.Identity, e.Holder.BalanceFormatted, e.Amount.StringFixed(plan.Precision))
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\nSum: %s", plan.Sum().StringFixed(plan.Precision))
	if drift := plan.Drift(); !drift.IsZero() {
		fmt.Fprintf(w, " (rounding drift %s)", drift)
	}
	fmt.Fprintln(w)
}

// printHistory writes ledger records oldest first.
func printHistory(w io.Writer, tokenID string, records []*ledger.Record) {
	if len(records) == 0 {
		fmt.Fprintf(w, "No payouts recorded for %s\n", tokenID)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTXID\tMODE\tTOTAL\tRECIPIENTS")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			r.At.UTC().Format("2006-01-02 15:04:05"), r.TxID, r.Mode, r.Total, len(r.Entries))
	}
	_ = tw.Flush()
}
