// Package repack orchestrates apktool, apksigner, and zipalign to
// decompile, rebuild, sign, and align Android application packages.
package repack

// Version is the repack release version.
const Version = "0.3.0"
