package nutriscan

// Version is the current nutriscan release.
const Version = "0.3.0"
