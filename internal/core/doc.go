// Package core provides the business logic of the export statistics dashboard.
//
// It sits between the workbook loader and the transports (web server and
// exportctl), and holds no UI code, so handlers, the CLI and tests drive it
// the same way.
//
// # Architecture
//
// A request flows through these stages:
//
//  1. [Source] returns the parsed workbook, cached per file version
//  2. Records are rolled up by (region, country), once per dataset
//  3. The rollups are filtered by a [rollup.Selection] and expressed in
//     the selected currency
//  4. [Service.View] derives the KPI summary, ranked table, top-N lists
//     and new/lost markets from the filtered rollups
//
// Drill-downs ([Service.RegionDetail], [Service.CountryDetail]) and the
// global rank ([Service.Rank]) reuse the same memoized rollups.
//
// # Selections
//
// A nil region or country set selects everything; an empty non-nil set
// selects nothing. Top-N is clamped to the configured bounds:
//
//	sel := svc.DefaultSelection()
//	sel.Regions = rollup.NewSet("Europe", "GCC")
//	sel.Currency = model.EGP
//	view, err := svc.View(ctx, sel)
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - SRC001-SRC003: Workbook errors (missing file, missing sheet, unreadable)
//   - REQ001-REQ003: Request errors (bad selection, unknown name, cancelled)
//   - RATE001-RATE002: Capacity errors (rate limited, render slots busy)
//
// # Rendering
//
// Page and chart renders are bounded by a [RenderLimiter] so a burst of
// dashboard loads queues instead of saturating the CPU.
package core
