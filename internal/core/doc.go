// Package core turns uploaded client spreadsheets into canonical entities.
//
// It holds all intake domain logic independent of any transport, so the
// HTTP server, the CLI and tests share it unchanged.
//
// # Schemas
//
// An upload is parsed once by [Detect] into a [Schema]:
//
//   - [FlatSchema]: one row per client with fixed-offset applicant and owner
//     blocks. The column layout is data ([Layout]); the header row picks the
//     v1 or v2 variant.
//   - [RelationalSchema]: a workbook with Clients, Beneficial Owners,
//     Exemptions and Company Applicants sheets joined on Client ID. Sheets
//     are registered with [Register] and columns found through [HeaderIndex].
//
// [Schema.Produce] yields a [Batch] of entities plus row issues and stats.
// File-level problems are errors; row-level problems never are.
//
// # Derived fields
//
// EntityType, ServiceType and DataComplete are always derived. Both schemas
// share [DeriveClassification] and every [Entity] mutator recomputes
// completeness through [EvaluateCompleteness].
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]:
//
//   - FILE001-FILE006: file errors (size, format, empty)
//   - VAL001-VAL004: validation errors (columns, formats)
//   - UPL001-UPL005: upload errors (busy, cancelled, timeout)
//   - PRC001-PRC002: pricing errors
package core
