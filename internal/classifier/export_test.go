package classifier

var Truncate = truncate
