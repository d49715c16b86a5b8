package backup

// Compatible reports whether a and b describe the same network closely
// enough that a device joined to one would join the other — everything
// that matters for a device's join decision except the replay counters,
// which roll forward independently of the network's identity.
func Compatible(a, b Backup) bool {
	return a.Node.NWK == b.Node.NWK &&
		a.Node.IEEE == b.Node.IEEE &&
		a.Node.LogicalType == b.Node.LogicalType &&
		a.Network.ExtendedPANID == b.Network.ExtendedPANID &&
		a.Network.PANID == b.Network.PANID &&
		a.Network.NWKUpdateID == b.Network.NWKUpdateID &&
		a.Network.NWKManagerID == b.Network.NWKManagerID &&
		a.Network.Channel == b.Network.Channel &&
		a.Network.SecurityLevel == b.Network.SecurityLevel &&
		a.Network.TCLinkKey.Key == b.Network.TCLinkKey.Key &&
		a.Network.NetworkKey.Key == b.Network.NetworkKey.Key
}

// Supersedes reports whether candidate should replace existing in a
// history list: compatible, strictly further along on the network key's
// frame counter, and not behind on the NWK update id.
func Supersedes(candidate, existing Backup) bool {
	return Compatible(candidate, existing) &&
		candidate.Network.NetworkKey.TXCounter > existing.Network.NetworkKey.TXCounter &&
		candidate.Network.NWKUpdateID >= existing.Network.NWKUpdateID
}
