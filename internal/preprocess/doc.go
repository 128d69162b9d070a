// Package preprocess turns a validated, materialized upload into
// presentable artifacts and normalized metadata.
//
// Two preprocessor variants exist behind a shared contract:
//   - Image: fully synchronous — decode, measure, thumbnail.
//   - Video: partial — container metadata only, a synthesized
//     placeholder thumbnail, and a deferred task for the trusted
//     client that owns the real rendering.
//
// The dispatcher selects exactly one variant per detected format;
// adding a format means adding a variant.
package preprocess
