/*
Copyright © 2026 the streamconc authors.
This file is part of streamconc.

streamconc is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

streamconc is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with streamconc.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command streamconc simulates the transport of a pollutant along a stream.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/streamconc/streamconcutil"
)

func main() {
	if len(os.Args) == 1 {
		// Without a command, start the GUI server.
		streamconcutil.StartWebServer()
	}

	if err := streamconcutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
