package buildinfo

const Graffiti = " ____  ____   _____  _____ \n|  _ \\|  _ \\ / _ \\ \\/ /_ _|\n| |_) | |_) | | | \\  / | | \n|  __/|  _ <| |_| /  \\ | | \n|_|   |_| \\_\\\\___/_/\\_\\___|\n\n"

var (
	BuildTag string = "v0.0.0"
	Name     string = "PROXI"
	Time     string = ""
)

type buildinfo struct{}

func (buildinfo) Tag() string {
	return BuildTag
}

func (buildinfo) Name() string {
	return Name
}

func (buildinfo) Time() string {
	return Time
}

var Info buildinfo
