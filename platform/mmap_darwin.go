package platform

// https://developer.apple.com/documentation/apple-silicon/porting-just-in-time-compilers-to-apple-silicon
// The MAP_JIT affordance must be requested at allocation time or the later
// transition to PROT_EXEC is refused on Apple silicon.
const __MAP_JIT = 0x800

const mmapFlags = __MAP_JIT
