// Package core contains the canonical FastSpring billing contracts, entities,
// configuration and error taxonomy. Adapters depend on this package; core
// must not depend on transport or storage adapters.
package core
