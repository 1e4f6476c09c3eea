// Package model defines the core data structures used throughout rtps.
//
// This package contains the following main types:
//   - NavigationEntry: One committed navigation in a tab's history
//   - SourceLink, RefererRecord: Cross-tab and HTTP lineage signals
//   - CrossDomainContext: Pending risk context stored by the cross-domain gate
//   - Verdict: The outcome of a password-field risk analysis
//   - Detection: An entry in the detected-phishing log
//   - Settings: User-tunable engine settings
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The tab state store, the risk rules, the persistence layer, and
// the HTTP API all exchange these types.
//
// The models are designed to be serializable to JSON for API responses and
// database storage.
package model
