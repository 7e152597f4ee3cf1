// Command heapctl exercises a heapmgr heap from the command line.
package main

func main() {
	execute()
}
