// Package subscription builds FastSpring session payloads for an owner and
// resolves the owner's FastSpring account id.
//
// A Builder starts from a base payload of account, items, tags, and coupon,
// adds the contact when one was given, then folds each Payload override on
// top with MergeReplaceRecursive. Empty top-level values are dropped with
// StripEmpty after every step.
package subscription
